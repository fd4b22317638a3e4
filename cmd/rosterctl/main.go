// Command rosterctl imports and exports the student roster from the shell.
package main

func main() {
	Execute()
}
