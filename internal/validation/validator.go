package validation

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"musili-homes-backend/internal/models"
)

// FieldError is a single classified finding for one field. Errors block the
// operation, warnings are advisory only.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Outcome is the result of validating one listing. It is built fresh per call
// and never persisted.
type Outcome struct {
	IsValid  bool         `json:"is_valid"`
	Errors   []FieldError `json:"errors"`
	Warnings []FieldError `json:"warnings"`
}

// Options tunes the rule set. Zero values fall back to DefaultOptions via
// normalize, so callers can set only what they care about.
type Options struct {
	RequireImages   bool
	MinPrice        float64
	MaxPrice        float64
	AllowedStatuses []models.PropertyStatus
	StrictMode      bool

	// AgentIDs enables the referential check when non-nil: a supplied agent id
	// must be a member of this set.
	AgentIDs []int
}

// DefaultOptions returns the rule defaults used when an option is unset
func DefaultOptions() Options {
	return Options{
		MinPrice:        1,
		MaxPrice:        1_000_000_000,
		AllowedStatuses: models.AllStatuses(),
	}
}

// PropertyInput carries listing data into the validator. Nil pointers mean the
// field was not supplied, which is distinct from a zero value; partial updates
// depend on that distinction.
type PropertyInput struct {
	ID          *int     `json:"id,omitempty"`
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Bedrooms    *int     `json:"bedrooms,omitempty"`
	Bathrooms   *float64 `json:"bathrooms,omitempty"`
	Size        *int     `json:"size,omitempty"`
	Status      *string  `json:"status,omitempty"`
	AgentID     *int     `json:"agent_id,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Operation selects the operation-aware rule mode
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Error and warning codes
const (
	CodeTitleRequired       = "TITLE_REQUIRED"
	CodeTitleTooShort       = "TITLE_TOO_SHORT"
	CodeTitleTooLong        = "TITLE_TOO_LONG"
	CodeDescriptionRequired = "DESCRIPTION_REQUIRED"
	CodeDescriptionTooShort = "DESCRIPTION_TOO_SHORT"
	CodeDescriptionTooLong  = "DESCRIPTION_TOO_LONG"
	CodePriceRequired       = "PRICE_REQUIRED"
	CodePriceInvalid        = "PRICE_INVALID"
	CodePriceTooLow         = "PRICE_TOO_LOW"
	CodePriceTooHigh        = "PRICE_TOO_HIGH"
	CodeLocationRequired    = "LOCATION_REQUIRED"
	CodeLocationTooShort    = "LOCATION_TOO_SHORT"
	CodeAddressRequired     = "ADDRESS_REQUIRED"
	CodeAddressTooShort     = "ADDRESS_TOO_SHORT"
	CodeBedroomsRequired    = "BEDROOMS_REQUIRED"
	CodeBedroomsInvalid     = "BEDROOMS_INVALID"
	CodeBedroomsUnusual     = "BEDROOMS_UNUSUAL"
	CodeBathroomsRequired   = "BATHROOMS_REQUIRED"
	CodeBathroomsInvalid    = "BATHROOMS_INVALID"
	CodeBathroomsUnusual    = "BATHROOMS_UNUSUAL"
	CodeSizeRequired        = "SIZE_REQUIRED"
	CodeSizeInvalid         = "SIZE_INVALID"
	CodeSizeSmall           = "SIZE_SMALL"
	CodeSizeLarge           = "SIZE_LARGE"
	CodeStatusRequired      = "STATUS_REQUIRED"
	CodeStatusInvalid       = "STATUS_INVALID"
	CodeAgentRequired       = "AGENT_REQUIRED"
	CodeAgentInvalid        = "AGENT_INVALID"
	CodeAgentNotFound       = "AGENT_NOT_FOUND"
	CodeImagesRequired      = "IMAGES_REQUIRED"
	CodeImagesTooMany       = "IMAGES_TOO_MANY"
	CodeBathroomRatio       = "BATHROOM_RATIO_UNUSUAL"
	CodePricePerSqft        = "PRICE_PER_SQFT_UNUSUAL"
	CodeIDRequired          = "ID_REQUIRED"
)

// Validate checks a listing field by field and returns every error and warning
// in field declaration order. It is pure: same input and options always yield
// the same outcome.
func Validate(in PropertyInput, opts Options) Outcome {
	opts = normalize(opts)

	var errs, warns []FieldError

	// Title
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		errs = append(errs, FieldError{"title", "Title is required", CodeTitleRequired})
	} else {
		// Bounds are in characters, not bytes
		title := strings.TrimSpace(*in.Title)
		if utf8.RuneCountInString(title) < 5 {
			errs = append(errs, FieldError{"title", "Title must be at least 5 characters", CodeTitleTooShort})
		} else if utf8.RuneCountInString(title) > 200 {
			errs = append(errs, FieldError{"title", "Title must be at most 200 characters", CodeTitleTooLong})
		}
	}

	// Description
	if in.Description == nil || strings.TrimSpace(*in.Description) == "" {
		errs = append(errs, FieldError{"description", "Description is required", CodeDescriptionRequired})
	} else {
		desc := strings.TrimSpace(*in.Description)
		if utf8.RuneCountInString(desc) < 10 {
			errs = append(errs, FieldError{"description", "Description must be at least 10 characters", CodeDescriptionTooShort})
		} else if utf8.RuneCountInString(desc) > 2000 {
			errs = append(errs, FieldError{"description", "Description must be at most 2000 characters", CodeDescriptionTooLong})
		}
	}

	// Price
	if in.Price == nil {
		errs = append(errs, FieldError{"price", "Price is required", CodePriceRequired})
	} else if math.IsNaN(*in.Price) || math.IsInf(*in.Price, 0) {
		errs = append(errs, FieldError{"price", "Price must be a valid number", CodePriceInvalid})
	} else if *in.Price < opts.MinPrice {
		errs = append(errs, FieldError{"price",
			fmt.Sprintf("Price must be at least %.0f", opts.MinPrice), CodePriceTooLow})
	} else if *in.Price > opts.MaxPrice {
		errs = append(errs, FieldError{"price",
			fmt.Sprintf("Price must be at most %.0f", opts.MaxPrice), CodePriceTooHigh})
	}

	// Location
	if in.Location == nil || strings.TrimSpace(*in.Location) == "" {
		errs = append(errs, FieldError{"location", "Location is required", CodeLocationRequired})
	} else if utf8.RuneCountInString(strings.TrimSpace(*in.Location)) < 2 {
		errs = append(errs, FieldError{"location", "Location must be at least 2 characters", CodeLocationTooShort})
	}

	// Address
	if in.Address == nil || strings.TrimSpace(*in.Address) == "" {
		errs = append(errs, FieldError{"address", "Address is required", CodeAddressRequired})
	} else if utf8.RuneCountInString(strings.TrimSpace(*in.Address)) < 5 {
		errs = append(errs, FieldError{"address", "Address must be at least 5 characters", CodeAddressTooShort})
	}

	// Bedrooms
	if in.Bedrooms == nil {
		errs = append(errs, FieldError{"bedrooms", "Bedrooms is required", CodeBedroomsRequired})
	} else if *in.Bedrooms < 0 {
		errs = append(errs, FieldError{"bedrooms", "Bedrooms must be zero or more", CodeBedroomsInvalid})
	} else if *in.Bedrooms > 20 {
		warns = append(warns, FieldError{"bedrooms",
			fmt.Sprintf("Bedroom count of %d is unusually high", *in.Bedrooms), CodeBedroomsUnusual})
	}

	// Bathrooms
	if in.Bathrooms == nil {
		errs = append(errs, FieldError{"bathrooms", "Bathrooms is required", CodeBathroomsRequired})
	} else if *in.Bathrooms < 0 || math.IsNaN(*in.Bathrooms) {
		errs = append(errs, FieldError{"bathrooms", "Bathrooms must be zero or more", CodeBathroomsInvalid})
	} else if *in.Bathrooms > 10 {
		warns = append(warns, FieldError{"bathrooms",
			fmt.Sprintf("Bathroom count of %g is unusually high", *in.Bathrooms), CodeBathroomsUnusual})
	}

	// Size
	if in.Size == nil {
		errs = append(errs, FieldError{"size", "Size is required", CodeSizeRequired})
	} else if *in.Size <= 0 {
		errs = append(errs, FieldError{"size", "Size must be a positive number of square feet", CodeSizeInvalid})
	} else if *in.Size < 100 {
		warns = append(warns, FieldError{"size",
			fmt.Sprintf("Size of %d sq ft is unusually small", *in.Size), CodeSizeSmall})
	} else if *in.Size > 50000 {
		warns = append(warns, FieldError{"size",
			fmt.Sprintf("Size of %d sq ft is unusually large", *in.Size), CodeSizeLarge})
	}

	// Status
	if in.Status == nil || strings.TrimSpace(*in.Status) == "" {
		errs = append(errs, FieldError{"status", "Status is required", CodeStatusRequired})
	} else if !statusAllowed(*in.Status, opts.AllowedStatuses) {
		errs = append(errs, FieldError{"status",
			fmt.Sprintf("Status must be one of: %s", joinStatuses(opts.AllowedStatuses)), CodeStatusInvalid})
	}

	// Agent
	if in.AgentID == nil {
		errs = append(errs, FieldError{"agentId", "Agent ID is required", CodeAgentRequired})
	} else if *in.AgentID <= 0 {
		errs = append(errs, FieldError{"agentId", "Agent ID must be a positive number", CodeAgentInvalid})
	} else if opts.AgentIDs != nil && !containsInt(opts.AgentIDs, *in.AgentID) {
		errs = append(errs, FieldError{"agentId",
			fmt.Sprintf("Agent ID %d does not exist", *in.AgentID), CodeAgentNotFound})
	}

	// Images
	if opts.RequireImages && len(in.Images) == 0 {
		errs = append(errs, FieldError{"images", "At least one image is required", CodeImagesRequired})
	}
	if len(in.Images) > 50 {
		warns = append(warns, FieldError{"images",
			fmt.Sprintf("%d images is unusually many", len(in.Images)), CodeImagesTooMany})
	}

	// Strict-mode cross-field checks
	if opts.StrictMode {
		if in.Bathrooms != nil && in.Bedrooms != nil && *in.Bathrooms > float64(*in.Bedrooms)*2 {
			warns = append(warns, FieldError{"bathrooms",
				"Bathroom count is more than double the bedroom count", CodeBathroomRatio})
		}
		if in.Price != nil && in.Size != nil && *in.Size > 0 && *in.Price/float64(*in.Size) > 10000 {
			warns = append(warns, FieldError{"price",
				"Price per square foot is an extreme outlier", CodePricePerSqft})
		}
	}

	return Outcome{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// ValidateForOperation applies operation-aware rules:
//   - create: full validation
//   - update: full validation, then errors are filtered down to fields actually
//     supplied on the partial input (warnings pass through unfiltered)
//   - delete: field rules are ignored, only an id is required
func ValidateForOperation(in PropertyInput, op Operation, opts Options) Outcome {
	switch op {
	case OperationDelete:
		if in.ID == nil {
			return Outcome{
				Errors: []FieldError{{"id", "Property ID is required for deletion", CodeIDRequired}},
			}
		}
		return Outcome{IsValid: true}

	case OperationUpdate:
		out := Validate(in, opts)
		filtered := out.Errors[:0:0]
		for _, e := range out.Errors {
			if fieldSupplied(in, e.Field) {
				filtered = append(filtered, e)
			}
		}
		out.Errors = filtered
		out.IsValid = len(filtered) == 0
		return out

	default:
		return Validate(in, opts)
	}
}

// fieldSupplied reports whether the named field was present on the input
func fieldSupplied(in PropertyInput, field string) bool {
	switch field {
	case "title":
		return in.Title != nil
	case "description":
		return in.Description != nil
	case "price":
		return in.Price != nil
	case "location":
		return in.Location != nil
	case "address":
		return in.Address != nil
	case "bedrooms":
		return in.Bedrooms != nil
	case "bathrooms":
		return in.Bathrooms != nil
	case "size":
		return in.Size != nil
	case "status":
		return in.Status != nil
	case "agentId":
		return in.AgentID != nil
	case "images":
		return in.Images != nil
	case "id":
		return in.ID != nil
	}
	return false
}

func normalize(opts Options) Options {
	def := DefaultOptions()
	if opts.MinPrice == 0 {
		opts.MinPrice = def.MinPrice
	}
	if opts.MaxPrice == 0 {
		opts.MaxPrice = def.MaxPrice
	}
	if len(opts.AllowedStatuses) == 0 {
		opts.AllowedStatuses = def.AllowedStatuses
	}
	return opts
}

func statusAllowed(status string, allowed []models.PropertyStatus) bool {
	for _, s := range allowed {
		if string(s) == status {
			return true
		}
	}
	return false
}

func joinStatuses(statuses []models.PropertyStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
