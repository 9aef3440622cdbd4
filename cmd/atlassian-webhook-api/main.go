package main

import "github.com/ITestLab/atlassianwebhookapi/pkg/server"

func main() {
	server.Execute()
}
