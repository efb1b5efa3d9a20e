// Command agentflow decomposes a goal into sub-tasks, executes them one
// after another with an LLM and compiles the results into a report.
package main

func main() {
	Execute()
}
