package core

// RepoConfig represents the structure of the .qa-forge.yml file that a scanned
// repository may carry to influence dataset generation.
type RepoConfig struct {
	// Custom instructions appended to the generation prompt.
	CustomInstructions []string `yaml:"custom_instructions"`

	// Exclusion of entire directories by name.
	// Example: ["vendor", "dist", "testdata"]
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// Exclusion of files based on their extension.
	// The leading dot is optional. Example: [".gen.go", "pb.go"]
	ExcludeExts []string `yaml:"exclude_exts"`
}

// DefaultRepoConfig returns a config with default values.
func DefaultRepoConfig() *RepoConfig {
	return &RepoConfig{
		CustomInstructions: []string{},
		ExcludeDirs:        []string{},
		ExcludeExts:        []string{},
	}
}
