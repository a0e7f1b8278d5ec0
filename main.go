// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/pax-hub/paxy/cmd/paxy"

func main() {
	cmd.Execute()
}
