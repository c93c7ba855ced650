/*
Package config loads the projectbackup configuration.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------+-----+------------+
	      |            |            |            |
	+-----+----+ +-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   | |   TOML   |
	+----------+ +----------+ +----------+ +----------+

🎯 Purpose:
  - Load the add-in identity, the project source and the export options once
    at startup
  - Pass them explicitly to the commands instead of keeping package globals

🔍 Example:

	addin:
	  company: acme
	  name: BackupProject
	source:
	  provider: localdir
	  path: ./designs
	destination: ./backup
	extensions: [f3d, f3z]
	exclude: ["archive/**"]

Parsers register themselves by file extension; unknown fields are rejected.
*/
package config
