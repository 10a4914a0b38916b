package model

// CustomerStatus is the lifecycle state of a subscriber account.
type CustomerStatus string

const (
	StatusActive    CustomerStatus = "Active"
	StatusInactive  CustomerStatus = "Inactive"
	StatusSuspended CustomerStatus = "Suspended"
)

// CustomerStatuses lists the accepted statuses in display order.
var CustomerStatuses = []CustomerStatus{StatusActive, StatusInactive, StatusSuspended}

// Valid reports whether s is one of the known statuses.
func (s CustomerStatus) Valid() bool {
	for _, known := range CustomerStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Customer represents a subscriber account as stored in the `customer`
// table.  The set-top-box number is globally unique and never changes
// after the customer is created.  Optional text columns are NULL in the
// database and empty strings here.
//
// Fields:
//
//	ID              – primary key identifier.
//	Name            – subscriber name.
//	Address         – installation address.
//	PhoneNumber     – optional contact number.
//	PlanDetails     – optional description of the channel package.
//	MonthlyCharge   – amount billed per period, always positive.
//	SetTopBoxNumber – unique device identifier.
//	ConnectionDate  – optional date the connection was made.
//	Status          – Active, Inactive or Suspended.
//	Notes           – free text.
type Customer struct {
	ID              int64          `json:"id"`                        // customer.id
	Name            string         `json:"name"`                      // customer.name
	Address         string         `json:"address"`                   // customer.address
	PhoneNumber     string         `json:"phone_number,omitempty"`    // customer.phone_number
	PlanDetails     string         `json:"plan_details,omitempty"`    // customer.plan_details
	MonthlyCharge   float64        `json:"monthly_charge"`            // customer.monthly_charge
	SetTopBoxNumber string         `json:"set_top_box_number"`        // customer.set_top_box_number
	ConnectionDate  *Date          `json:"connection_date,omitempty"` // customer.connection_date
	Status          CustomerStatus `json:"status"`                    // customer.status
	Notes           string         `json:"notes,omitempty"`           // customer.notes
}

// IsActive reports whether the customer is billable.
func (c Customer) IsActive() bool { return c.Status == StatusActive }
