package domain

// Config is the subset of configuration handed to services.
type Config struct {
	VendorBaseURL string `yaml:"vendorBaseURL"`
}
