/*
Package project defines the capability set every project host exposes.

	+-----------+      Children(ctx)      +-----------+
	|  folder   | ----------------------> | file/dir  |
	+-----------+                         +-----------+

🎯 Purpose:
  - Describe a hosted project tree without depending on any vendor SDK
  - Give the walker four questions to ask a node: kind, extension,
    cloud reference and children

🤝 Implementations:
- MemoryNode: snapshots and tests
- pkg/host/localdir, pkg/host/manifest, pkg/host/github: real hosts
*/
package project
