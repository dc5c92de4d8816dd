// Package environment defines the deployment stages understood by coachkit
// and the rules tied to them. Development-only features check
// AllowsDevFeatures before switching on.
package environment
