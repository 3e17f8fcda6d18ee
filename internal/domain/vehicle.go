package domain

import "time"

// Vehicle is master data; Capacity never changes after creation.
type Vehicle struct {
	ID          int64
	Number      string
	RouteNumber string
	Capacity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
