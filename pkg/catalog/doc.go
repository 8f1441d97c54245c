// Package catalog loads step catalogs from JSON or YAML documents and
// validates them before an engine may run them. The strategy-session catalog
// used by the booking flow ships embedded; callers can point LoadFS at their
// own directory to add forms without touching the engine.
package catalog
