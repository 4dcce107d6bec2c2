package main

import "github.com/Algi221/Sistem-Perpustakaan-SMK-Taruna-Bhakti/cmd"

func main() {
	cmd.Execute()
}
