// ABOUTME: Version information for spaceconvert
// ABOUTME: Reported by the CLI, the health endpoint and mDNS records
package version

const (
	// Version is the current release
	Version = "0.3.0"

	// Product is the name shown to users and advertised on the network
	Product = "SpaceConvert"

	// Manufacturer identifies the publisher
	Manufacturer = "Ion Space"
)

// String formats the release as "Product Version (Manufacturer)"
func String() string {
	return Product + " " + Version + " (" + Manufacturer + ")"
}
