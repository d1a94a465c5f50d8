package validation

import (
	"strings"
	"testing"
)

func strPtr(s string) *string   { return &s }
func intPtr(i int) *int         { return &i }
func f64Ptr(f float64) *float64 { return &f }

func validInput() PropertyInput {
	return PropertyInput{
		Title:       strPtr("Lavington Garden Villa"),
		Description: strPtr("A five bedroom villa with mature gardens and staff quarters."),
		Price:       f64Ptr(85_000_000),
		Location:    strPtr("Nairobi"),
		Address:     strPtr("12 Hatheru Road, Lavington"),
		Bedrooms:    intPtr(5),
		Bathrooms:   f64Ptr(4.5),
		Size:        intPtr(6200),
		Status:      strPtr("For Sale"),
		AgentID:     intPtr(1),
	}
}

func TestValidateAcceptsCompleteListing(t *testing.T) {
	out := Validate(validInput(), DefaultOptions())
	if !out.IsValid {
		t.Fatalf("expected valid, got errors: %+v", out.Errors)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", out.Warnings)
	}
}

func TestValidateMissingEverything(t *testing.T) {
	out := Validate(PropertyInput{}, DefaultOptions())
	if out.IsValid {
		t.Fatal("empty input should be invalid")
	}

	wantOrder := []string{
		"title", "description", "price", "location", "address",
		"bedrooms", "bathrooms", "size", "status", "agentId",
	}
	if len(out.Errors) != len(wantOrder) {
		t.Fatalf("expected %d errors, got %d: %+v", len(wantOrder), len(out.Errors), out.Errors)
	}
	for i, field := range wantOrder {
		if out.Errors[i].Field != field {
			t.Errorf("error %d: expected field %q, got %q", i, field, out.Errors[i].Field)
		}
	}
}

func TestValidateSizeBoundaries(t *testing.T) {
	tests := []struct {
		size      int
		valid     bool
		warnCode  string
		errorCode string
	}{
		{100, true, "", ""},
		{99, true, CodeSizeSmall, ""},
		{0, false, "", CodeSizeInvalid},
		{50000, true, "", ""},
		{50001, true, CodeSizeLarge, ""},
	}

	for _, tt := range tests {
		in := validInput()
		in.Size = intPtr(tt.size)
		out := Validate(in, DefaultOptions())

		if out.IsValid != tt.valid {
			t.Errorf("size=%d: valid=%v, want %v (errors: %+v)", tt.size, out.IsValid, tt.valid, out.Errors)
		}
		if tt.warnCode != "" && !hasCode(out.Warnings, tt.warnCode) {
			t.Errorf("size=%d: expected warning %s, got %+v", tt.size, tt.warnCode, out.Warnings)
		}
		if tt.warnCode == "" && len(out.Warnings) != 0 {
			t.Errorf("size=%d: unexpected warnings %+v", tt.size, out.Warnings)
		}
		if tt.errorCode != "" && !hasCode(out.Errors, tt.errorCode) {
			t.Errorf("size=%d: expected error %s, got %+v", tt.size, tt.errorCode, out.Errors)
		}
	}
}

func TestValidateTitleBounds(t *testing.T) {
	tests := []struct {
		title string
		code  string
	}{
		{"Cosy", CodeTitleTooShort},
		{"Müde", CodeTitleTooShort}, // 4 characters, 5 bytes
		{strings.Repeat("x", 201), CodeTitleTooLong},
		{strings.Repeat("é", 201), CodeTitleTooLong},
		{"   ", CodeTitleRequired},
	}

	for _, tt := range tests {
		in := validInput()
		in.Title = strPtr(tt.title)
		out := Validate(in, DefaultOptions())
		if out.IsValid || !hasCode(out.Errors, tt.code) {
			t.Errorf("title=%q: expected error %s, got %+v", tt.title, tt.code, out.Errors)
		}
	}
}

func TestValidateLengthBoundsCountCharacters(t *testing.T) {
	// Accented text sits at the upper bounds: valid by character count even
	// though the byte count is double
	in := validInput()
	in.Title = strPtr(strings.Repeat("é", 200))
	in.Description = strPtr(strings.Repeat("ü", 2000))
	out := Validate(in, DefaultOptions())
	if !out.IsValid {
		t.Fatalf("200-character title and 2000-character description should pass, got %+v", out.Errors)
	}

	in = validInput()
	in.Location = strPtr("Ø")
	out = Validate(in, DefaultOptions())
	if out.IsValid || !hasCode(out.Errors, CodeLocationTooShort) {
		t.Errorf("single-character location should fail regardless of byte width, got %+v", out.Errors)
	}
}

func TestValidatePriceRange(t *testing.T) {
	opts := DefaultOptions()
	opts.MinPrice = 1000
	opts.MaxPrice = 500_000

	tests := []struct {
		price float64
		code  string
	}{
		{999, CodePriceTooLow},
		{1000, ""},
		{500_000, ""},
		{500_001, CodePriceTooHigh},
	}

	for _, tt := range tests {
		in := validInput()
		in.Price = f64Ptr(tt.price)
		out := Validate(in, opts)
		if tt.code == "" {
			if !out.IsValid {
				t.Errorf("price=%.0f: expected valid, got %+v", tt.price, out.Errors)
			}
		} else if !hasCode(out.Errors, tt.code) {
			t.Errorf("price=%.0f: expected %s, got %+v", tt.price, tt.code, out.Errors)
		}
	}
}

func TestValidateStatusMembership(t *testing.T) {
	in := validInput()
	in.Status = strPtr("Under Offer")
	out := Validate(in, DefaultOptions())

	if out.IsValid || !hasCode(out.Errors, CodeStatusInvalid) {
		t.Fatalf("expected %s, got %+v", CodeStatusInvalid, out.Errors)
	}
	if !strings.Contains(out.Errors[0].Message, "For Sale") {
		t.Errorf("status error should list allowed statuses, got %q", out.Errors[0].Message)
	}
}

func TestValidateAgentReferentialCheck(t *testing.T) {
	opts := DefaultOptions()
	opts.AgentIDs = []int{1, 2, 3}

	in := validInput()
	in.AgentID = intPtr(7)
	out := Validate(in, opts)

	if out.IsValid || !hasCode(out.Errors, CodeAgentNotFound) {
		t.Fatalf("expected %s, got %+v", CodeAgentNotFound, out.Errors)
	}
	if !strings.Contains(out.Errors[0].Message, "7") {
		t.Errorf("agent error should contain the literal id, got %q", out.Errors[0].Message)
	}

	// No set supplied means no referential check
	out = Validate(in, DefaultOptions())
	if !out.IsValid {
		t.Errorf("without an agent set the id should only need to be positive, got %+v", out.Errors)
	}
}

func TestValidateRequireImages(t *testing.T) {
	opts := DefaultOptions()
	opts.RequireImages = true

	out := Validate(validInput(), opts)
	if out.IsValid || !hasCode(out.Errors, CodeImagesRequired) {
		t.Fatalf("expected %s, got %+v", CodeImagesRequired, out.Errors)
	}

	in := validInput()
	in.Images = []string{"a.jpg"}
	if out := Validate(in, opts); !out.IsValid {
		t.Errorf("one image should satisfy RequireImages, got %+v", out.Errors)
	}
}

func TestValidateStrictModeWarnings(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictMode = true

	in := validInput()
	in.Bedrooms = intPtr(2)
	in.Bathrooms = f64Ptr(5)
	in.Price = f64Ptr(900_000_000)
	in.Size = intPtr(150)

	out := Validate(in, opts)
	if !out.IsValid {
		t.Fatalf("strict checks are warnings, not errors: %+v", out.Errors)
	}
	if !hasCode(out.Warnings, CodeBathroomRatio) {
		t.Errorf("expected %s warning, got %+v", CodeBathroomRatio, out.Warnings)
	}
	if !hasCode(out.Warnings, CodePricePerSqft) {
		t.Errorf("expected %s warning, got %+v", CodePricePerSqft, out.Warnings)
	}

	// Same input without strict mode stays quiet
	out = Validate(in, DefaultOptions())
	if hasCode(out.Warnings, CodeBathroomRatio) || hasCode(out.Warnings, CodePricePerSqft) {
		t.Errorf("strict warnings emitted outside strict mode: %+v", out.Warnings)
	}
}

func TestValidateForOperationUpdateFiltersAbsentFields(t *testing.T) {
	in := PropertyInput{Price: f64Ptr(-5)}
	out := ValidateForOperation(in, OperationUpdate, DefaultOptions())

	if out.IsValid {
		t.Fatal("a supplied invalid price must still fail on update")
	}
	if len(out.Errors) != 1 {
		t.Fatalf("expected exactly 1 error, got %d: %+v", len(out.Errors), out.Errors)
	}
	if out.Errors[0].Field != "price" {
		t.Errorf("expected error on price, got %q", out.Errors[0].Field)
	}
}

func TestValidateForOperationUpdateEmptyInputIsValid(t *testing.T) {
	out := ValidateForOperation(PropertyInput{}, OperationUpdate, DefaultOptions())
	if !out.IsValid {
		t.Errorf("an update supplying no fields has nothing to reject, got %+v", out.Errors)
	}
}

func TestValidateForOperationDelete(t *testing.T) {
	out := ValidateForOperation(PropertyInput{}, OperationDelete, DefaultOptions())
	if out.IsValid || !hasCode(out.Errors, CodeIDRequired) {
		t.Fatalf("expected %s, got %+v", CodeIDRequired, out.Errors)
	}

	out = ValidateForOperation(PropertyInput{ID: intPtr(12)}, OperationDelete, DefaultOptions())
	if !out.IsValid {
		t.Errorf("delete with id should be valid, got %+v", out.Errors)
	}
}

func TestValidateBedroomWarning(t *testing.T) {
	in := validInput()
	in.Bedrooms = intPtr(21)
	out := Validate(in, DefaultOptions())
	if !out.IsValid {
		t.Fatalf("21 bedrooms is unusual but not invalid: %+v", out.Errors)
	}
	if !hasCode(out.Warnings, CodeBedroomsUnusual) {
		t.Errorf("expected %s warning, got %+v", CodeBedroomsUnusual, out.Warnings)
	}
}

func hasCode(findings []FieldError, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}
