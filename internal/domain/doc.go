// Package domain defines the Task entity, the dd/mm/yyyy and HH:MM formats
// it is built from, and the validation errors returned for bad input.
package domain
