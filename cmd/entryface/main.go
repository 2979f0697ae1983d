// Command entryface composes entry rows and syncs them to the text store.
package main

import "github.com/englishaccelerators/language-creator/internal/cli"

func main() {
	cli.Execute()
}
