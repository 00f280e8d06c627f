package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Binding Errors (Q001-Q009)
	// ============================================

	"Q001": {
		Category: CategoryBinding,
		Message:  "Route not provided",
		Detail:   "A query-parameter binding needs the active route to read query parameters from.",
	},
	"Q002": {
		Category: CategoryBinding,
		Message:  "Router not provided",
		Detail:   "A query-parameter binding needs a router to write query parameters to.",
	},
	"Q003": {
		Category: CategoryBinding,
		Message:  "Scope not provided",
		Detail:   "A query-parameter binding needs a live scope so it can be torn down with its owner.",
	},

	// ============================================
	// Property Errors (Q004-Q006)
	// ============================================

	"Q004": {
		Category: CategoryProperty,
		Message:  "Unknown property",
		Detail:   "The property has not been defined on this property table.",
	},
	"Q005": {
		Category: CategoryProperty,
		Message:  "Properties frozen",
		Detail:   "New properties cannot be defined on a frozen or released property table.",
	},
	"Q006": {
		Category: CategoryProperty,
		Message:  "Property type mismatch",
		Detail:   "The value's type does not match the type the property was defined with.",
	},

	// ============================================
	// Codec Errors (Q007)
	// ============================================

	"Q007": {
		Category: CategoryCodec,
		Message:  "Undecodable query parameter",
		Detail:   "The query parameter text could not be parsed into the property's type.",
	},

	// ============================================
	// Navigation Errors (Q008)
	// ============================================

	"Q008": {
		Category: CategoryNavigation,
		Message:  "Navigation failed",
		Detail:   "The router rejected a query-parameter navigation.",
	},

	// ============================================
	// Configuration Errors (Q020-Q029)
	// ============================================

	"Q020": {
		Category: CategoryConfig,
		Message:  "Invalid querysync.json",
		Detail:   "The querysync.json configuration file is malformed or has invalid values.",
	},
	"Q021": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No querysync.json was found in the given directory.",
	},

	// ============================================
	// Library Errors (Q030-Q039)
	// ============================================

	"Q030": {
		Category: CategoryLibrary,
		Message:  "Library ID not found",
		Detail:   "The item view was opened without a library ID.",
	},
	"Q031": {
		Category: CategoryLibrary,
		Message:  "Library not found",
		Detail:   "No library with the requested ID exists in the dataset.",
	},
	"Q032": {
		Category: CategoryLibrary,
		Message:  "Dataset unavailable",
		Detail:   "The library dataset could not be loaded.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
