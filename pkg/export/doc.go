/*
Package export writes the files of a walked project below a destination root.

	+----------+     tasks      +----------+    Fetch     +--------+
	|  walker  | -------------> | Exporter | -----------> |  host  |
	+----------+                +----+-----+              +--------+
	                                 |
	                          Issues | Progress
	                                 v
	                          +-------------+
	                          | Session/Sink |
	                          +-------------+

🔄 Per file, in order:
1. Stop if cancellation was requested
2. Skip unsupported extensions (no filesystem access)
3. Fail nodes without a cloud reference
4. Create parent directories
5. Skip files that already exist, never overwrite
6. Fetch into a staging folder, then link into place without replacing

Every task ends as processed or as exactly one Issue. Only cancellation ends
a session early, and only between files.

🔍 Example:

	sess := export.NewSession(root, dest)
	exp := export.New(host, export.WithProgress(sink))
	report, err := exp.Export(ctx, sess, walker.New(dest).Walk(ctx, root))
*/
package export
