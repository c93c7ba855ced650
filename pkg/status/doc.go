/*
Package status presents export progress and results on the terminal.

	            +-------------+
	            |  Exporter   |
	            +------+------+
	                   |
	      +-----------+-----------+
	      |                       |
	+-----+-----+           +----+----+
	|  BarSink  |           | LogSink |
	|  (pterm)  |           |(zerolog)|
	+-----------+           +---------+

🎯 Purpose:
- Implements export.ProgressSink as a progress bar or as log lines
- Reports the issues of a finished export through the sink's Finish
- Renders the final report as a table and the project as a tree

🔍 Example:

	sink := status.NewBarSink(os.Stdout, "Backing up")
	report, err := export.New(h, export.WithProgress(sink)).Export(ctx, sess, tasks)
	if err != nil {
		return err
	}
	sink.Finish(ctx, report)
	_ = status.PrintReport(os.Stdout, report)
*/
package status
