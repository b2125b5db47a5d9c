package main

import "github.com/oshokin/minio-warden/cmd/minio-warden/cmd"

func main() {
	cmd.Execute()
}
