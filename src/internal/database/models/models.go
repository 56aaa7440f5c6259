package models

import "gorm.io/gorm"

// GetAllModels returns all model types for migration
func GetAllModels() []interface{} {
	return []interface{}{
		// Tenant models
		&Account{},
		&User{},

		// Contact models
		&Contact{},

		// Tag models
		&Tag{},
		&ContactTag{},
	}
}

// SetupJoinTables registers ContactTag as the join model for the
// contact/tag many2many so that preloads and migrations agree on its columns.
func SetupJoinTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Contact{}, "Tags", &ContactTag{}); err != nil {
		return err
	}
	return db.SetupJoinTable(&Tag{}, "Contacts", &ContactTag{})
}
