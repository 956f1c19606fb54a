package models

const DefaultOrganizationName = "My Organization"

// Settings holds organization level display preferences.
// MaxUsers is informational only; nothing enforces it.
type Settings struct {
	OrganizationName string `json:"organizationName"`
	MaxUsers         int    `json:"maxUsers"`
}

func DefaultSettings() Settings {
	return Settings{
		OrganizationName: DefaultOrganizationName,
		MaxUsers:         1,
	}
}

// SettingsPatch carries a partial settings update; nil fields are left alone.
type SettingsPatch struct {
	OrganizationName *string `json:"organizationName,omitempty"`
	MaxUsers         *int    `json:"maxUsers,omitempty"`
}

// Apply shallow-merges the patch into s.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.OrganizationName != nil {
		s.OrganizationName = *p.OrganizationName
	}
	if p.MaxUsers != nil {
		s.MaxUsers = *p.MaxUsers
	}
	return s
}

func (p SettingsPatch) Empty() bool {
	return p.OrganizationName == nil && p.MaxUsers == nil
}
