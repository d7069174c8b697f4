package payload

// supportedRegions is the closed set offered by the region selector.
var supportedRegions = []string{
	"Ahmedabad", "Aizawl", "Amaravati", "Amritsar", "Bengaluru", "Bhopal",
	"Brajrajnagar", "Chandigarh", "Chennai", "Coimbatore", "Delhi", "Ernakulam",
	"Gurugram", "Guwahati", "Hyderabad", "Jaipur", "Jorapokhar", "Kochi",
	"Kolkata", "Lucknow", "Mumbai", "Patna", "Shillong", "Talcher",
	"Thiruvananthapuram", "Visakhapatnam",
}

// SupportedRegions returns a copy of the selectable regions in display order.
func SupportedRegions() []string {
	out := make([]string, len(supportedRegions))
	copy(out, supportedRegions)
	return out
}

// IsSupportedRegion reports whether region is one of SupportedRegions (exact match).
func IsSupportedRegion(region string) bool {
	for _, r := range supportedRegions {
		if r == region {
			return true
		}
	}
	return false
}
