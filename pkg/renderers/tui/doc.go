// Package tui drives a form session from the terminal. Each step becomes one
// survey prompt; option steps gain a back choice and free-text steps accept
// a back keyword. Failed submissions offer retry, edit or quit.
package tui
