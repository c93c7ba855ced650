/*
Package host defines where projects come from.

	            +-------------+
	            |    Host     |
	            |  (Source)   |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	| localdir | | manifest | |  github  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Hand out the active project as a project.Node tree
- Transfer single files to local disk on request

Hosts register a Factory under their provider name from an init function;
import the implementation packages for their side effects.
*/
package host
