package dto

import "time"

type BookingListDTO struct {
	ID           uint      `json:"id"`
	Reference    string    `json:"reference"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	ServiceName  string    `json:"service_name"`
	CustomerName string    `json:"customer_name"`
	DepositPaid  bool      `json:"deposit_paid"`
}
