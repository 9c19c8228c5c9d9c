/*
Package status tracks batch progress and renders results for people.

	+-------------+      +-------------+      +-------------+
	|  Executor   |----->|   Tracker   |----->|  Formatter  |
	| (observer)  |      | (per path)  |      |  (emoji)    |
	+-------------+      +------+------+      +-------------+
	                            |
	                     +------+------+
	                     |  Workspace  |
	                     | (afero fs)  |
	                     +-------------+

🎯 Purpose:
- Records every step outcome a batch reports
- Turns classified errors into messages with a next step
- Moves file content between the local disk and the engine

🔄 Flow:
1. Tracker.Start is told how many files a batch holds
2. Tracker.Observe is handed to the executor as its BatchObserver
3. The CLI asks Tracker for progress and the Formatter for text

🤝 Interfaces:
- Formatter: FormatStep, FormatProgress, FormatError
- Workspace: local reads and atomic local writes

🚧 Current Issues & TODOs:
1. Progress:
  - Render a live pterm progress bar instead of one line per step

🔍 Example:

	tracker := status.NewTracker(&logger)
	tracker.Start(ctx, len(files))
	opts.Observer = tracker.Observe

	for _, info := range tracker.List() {
		fmt.Println(status.NewDefaultFormatter().FormatStep(info))
	}
*/
package status
