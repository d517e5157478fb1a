package checkout

import (
	"html"
	"regexp"
	"strings"

	"github.com/example/dairyshop/pkg/models"
)

// Indian mobile number, optionally prefixed +91 or 91; the subscriber part
// starts with 6-9.
var phonePattern = regexp.MustCompile(`^(\+91|91)?[6-9][0-9]{9}$`)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Form is the customer-facing checkout input.
type Form struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Email        string `json:"email"`
	Landmark     string `json:"landmark"`
	DeliverySlot string `json:"delivery_slot"`
	Instructions string `json:"instructions"`
}

// ValidationError carries every violated rule; callers surface the
// messages as-is and the client resubmits.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// ValidateForm checks every field rule and reports all violations.
func ValidateForm(form *Form) []string {
	var errs []string

	if len(strings.TrimSpace(form.Name)) < 2 {
		errs = append(errs, "Name must be at least 2 characters")
	}
	if !phonePattern.MatchString(strings.TrimSpace(form.Phone)) {
		errs = append(errs, "Enter a valid 10-digit mobile number")
	}
	if len(strings.TrimSpace(form.Address)) < 10 {
		errs = append(errs, "Address must be at least 10 characters")
	}
	if !models.ValidDeliverySlot(form.DeliverySlot) {
		errs = append(errs, "Choose a valid delivery slot")
	}
	if form.Email != "" && !emailPattern.MatchString(strings.TrimSpace(form.Email)) {
		errs = append(errs, "Enter a valid email address")
	}

	return errs
}

// ValidateOrder checks a candidate order record. Every rule runs; nothing
// short-circuits.
func ValidateOrder(order *models.Order) (bool, []string) {
	var errs []string

	if order.ID == "" {
		errs = append(errs, "Order ID is required")
	}
	if order.UserID == "" {
		errs = append(errs, "User ID is required")
	}
	if order.Customer.Name == "" {
		errs = append(errs, "Customer name is required")
	}
	if order.Customer.Phone == "" {
		errs = append(errs, "Customer phone is required")
	}
	if order.Customer.Address == "" {
		errs = append(errs, "Customer address is required")
	}
	if len(order.Items) == 0 {
		errs = append(errs, "Order must contain at least one item")
	}
	if order.Total <= 0 {
		errs = append(errs, "Order total must be a positive number")
	}

	return len(errs) == 0, errs
}

// Sanitize escapes HTML entities in the free-text fields so stored values
// render inert. Phone and email keep their strictly validated shapes.
func (f *Form) Sanitize() {
	f.Name = html.EscapeString(strings.TrimSpace(f.Name))
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = html.EscapeString(strings.TrimSpace(f.Address))
	f.Email = strings.TrimSpace(f.Email)
	f.Landmark = html.EscapeString(strings.TrimSpace(f.Landmark))
	f.Instructions = html.EscapeString(strings.TrimSpace(f.Instructions))
}
