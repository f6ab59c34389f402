// SPDX-License-Identifier: MPL-2.0

package main

import cmd "bundlectl/cmd/bundlectl"

func main() {
	cmd.Execute()
}
