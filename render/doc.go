// Package render draws the signup views. Text targets terminals, HTML emits
// self contained fragments for a page shell, and Notice prints transient
// notifications to a writer.
package render
