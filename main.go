/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ShameelMohamed/FASHN8/cmd"

func main() {
	cmd.Execute()
}
