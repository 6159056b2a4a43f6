package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/carelane/hospital-platform/pkg/logging"
)

// DashboardHandler serves the admin statistics endpoints. It runs read-only
// aggregate queries over database/sql; individual metric failures degrade to
// zero rather than failing the whole response.
type DashboardHandler struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(db *sql.DB, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{db: db, logger: logger, now: time.Now}
}

// StatsResponse contains the dashboard headline counts.
type StatsResponse struct {
	Departments  int                `json:"departments"`
	Doctors      int                `json:"doctors"`
	Patients     int                `json:"patients"`
	Appointments AppointmentMetrics `json:"appointments"`
}

// AppointmentMetrics breaks down the appointment counts.
type AppointmentMetrics struct {
	Total     int `json:"total"`
	Upcoming  int `json:"upcoming"`
	ThisWeek  int `json:"this_week"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// GetStats returns the headline counts.
// GET /admin/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	var stats StatsResponse

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM departments`,
	).Scan(&stats.Departments)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM doctors`,
	).Scan(&stats.Doctors)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM patients`,
	).Scan(&stats.Patients)

	now := h.now().UTC()
	weekAgo := now.AddDate(0, 0, -7)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments`,
	).Scan(&stats.Appointments.Total)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE scheduled_at > $1 AND status = 'Booked'`, now,
	).Scan(&stats.Appointments.Upcoming)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE scheduled_at >= $1 AND scheduled_at < $2`, weekAgo, now,
	).Scan(&stats.Appointments.ThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'Completed'`,
	).Scan(&stats.Appointments.Completed)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE status = 'Cancelled'`,
	).Scan(&stats.Appointments.Cancelled)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ChartDataResponse feeds the bookings-per-day chart on the admin page.
type ChartDataResponse struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one chart series.
type Dataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

// GetChartData returns appointments per day over the last seven days.
// GET /admin/chart-data
func (h *DashboardHandler) GetChartData(w http.ResponseWriter, r *http.Request) {
	today := h.now().UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -6)

	rows, err := h.db.QueryContext(r.Context(),
		`SELECT date_trunc('day', scheduled_at) AS day, COUNT(*)
		 FROM appointments
		 WHERE scheduled_at >= $1 AND scheduled_at < $2
		 GROUP BY day ORDER BY day ASC`,
		start, today.AddDate(0, 0, 1))
	if err != nil {
		h.logger.Error("failed to query chart data", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	counts := make(map[string]int, 7)
	for rows.Next() {
		var day time.Time
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			h.logger.Error("failed to scan chart row", "error", err)
			continue
		}
		counts[day.Format("2006-01-02")] = count
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("error iterating chart rows", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := ChartDataResponse{
		Datasets: []Dataset{{Label: "Appointments"}},
	}
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		label := d.Format("2006-01-02")
		resp.Labels = append(resp.Labels, label)
		resp.Datasets[0].Data = append(resp.Datasets[0].Data, counts[label])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
