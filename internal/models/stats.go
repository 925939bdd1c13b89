package models

// AppointmentStats aggregates appointment counts over a date range
type AppointmentStats struct {
	TotalAppointments  int     `json:"total_appointments"`
	Confirmed          int     `json:"confirmed"`
	Completed          int     `json:"completed"`
	Cancelled          int     `json:"cancelled"`
	NoShow             int     `json:"no_show"`
	Rescheduled        int     `json:"rescheduled"`
	PhysicalVisits     int     `json:"physical_visits"`
	Teleconsultations  int     `json:"teleconsultations"`
	USSDBookings       int     `json:"ussd_bookings"`
	AvgConsultationFee float64 `json:"avg_consultation_fee"`
}
