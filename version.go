package promptdown

// Version is the release of this module. Release builds override it with
// -ldflags "-X github.com/aretw0/promptdown.Version=v1.2.3".
var Version = "dev"
