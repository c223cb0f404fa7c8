// Command tandem researches a topic on the web and charts the findings
// with two cooperating agents.
package main

func main() {
	Execute()
}
