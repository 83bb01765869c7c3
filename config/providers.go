package config

// ProvidersConfig groups the static OAuth application credentials for the
// supported mail providers. Per-user tokens live in connected_accounts, not
// here.
type ProvidersConfig struct {
	Google GoogleConfig `envPrefix:"GOOGLE_"`
}

// GoogleConfig contains the Google OAuth2 application credential pair used to
// refresh Gmail tokens.
type GoogleConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:""`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
}
