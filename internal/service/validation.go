package service

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"canopy/internal/config"
	"canopy/internal/domain/models"
)

// ValidateFolderName is the single source of truth for folder-name rules,
// called from every entry point that accepts a name. The caller trims first.
func ValidateFolderName(name string) error {
	return validation.Validate(name,
		validation.Required.Error("folder name is required"),
		validation.Length(1, config.MaxFolderNameLength),
	)
}

// ValidateProcessKind checks a kind against the fixed enumeration before any
// state change happens.
func ValidateProcessKind(kind models.ProcessKind) error {
	kinds := make([]interface{}, 0, len(models.ProcessKinds))
	for _, k := range models.ProcessKinds {
		kinds = append(kinds, string(k))
	}
	return validation.Validate(string(kind),
		validation.Required.Error("process_kind is required"),
		validation.In(kinds...).Error("unknown process kind"),
	)
}
