package userbackend

// UsersConfig holds configuration for loading sandbox users.
type UsersConfig struct {
	Inline []User `mapstructure:"inline"` // Inline users from config
	File   string `mapstructure:"file"`   // Path to JSON file containing users
}

// NewUserStore creates a MapUserStore from inline users and the users file.
// File users take precedence over inline users with the same name.
func NewUserStore(cfg UsersConfig) (*MapUserStore, error) {
	users := make(map[string]string)

	for _, u := range cfg.Inline {
		if u.Username != "" && u.Password != "" {
			users[u.Username] = u.Password
		}
	}

	if cfg.File != "" {
		fileUsers, err := LoadUsersFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileUsers {
			users[k] = v
		}
	}

	return NewMapUserStore(users), nil
}
