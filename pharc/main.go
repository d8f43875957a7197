/*
Copyright © 2022 Morgan Gangwere <morgan.gangwere@gmail.com>
*/
package main

import "github.com/indrora/phar/pharc/cmd"

func main() {
	cmd.Execute()
}
