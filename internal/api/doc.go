// Package api exposes the task lifecycle over JSON HTTP. It decodes and
// validates requests, calls the task service and maps service errors to
// status codes without leaking internal details.
package api
