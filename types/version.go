package types

// Version is the canonical serialcat version.
const Version = "0.3.0"
