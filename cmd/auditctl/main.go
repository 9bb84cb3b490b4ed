// Command auditctl runs maintenance tasks and offline calculations against the
// audit man-day database.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
