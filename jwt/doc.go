// Package jwt verifies gateway bearer tokens and extracts the consumer
// application they were issued to. It never issues tokens.
package jwt
