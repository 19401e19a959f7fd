package labtest

import "time"

type LabTest struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	RequestedDate time.Time `json:"requested_date"`
	DeliveryDate  time.Time `json:"delivery_date"`
	Status        string    `json:"status"`
	Observations  *string   `json:"observations,omitempty"`
	Rating        int       `json:"rating"`
	CategoryID    int64     `json:"category_id"`
	ClientID      int64     `json:"client_id"`
	StaffID       int64     `json:"staff_id"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// TurnaroundDays is the whole-day delivery turnaround; the fractional
// remainder is discarded.
func (t *LabTest) TurnaroundDays() int {
	return int(t.DeliveryDate.Sub(t.RequestedDate).Hours() / 24)
}

type Result struct {
	ID             int64     `json:"id"`
	TestID         int64     `json:"test_id"`
	Result         string    `json:"result"`
	Date           time.Time `json:"date"`
	Observations   string    `json:"observations"`
	Interpretation string    `json:"interpretation"`
	Details        string    `json:"details"`
	ImagePath      *string   `json:"image_path,omitempty"`
}
