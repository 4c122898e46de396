// Package parser extracts import and export syntax from component source.
//
// Components are written as JSX modules:
//
//	import World from "component://bob/World";
//	import Item from "./Item";
//	import { format as fmt } from "date-lib";
//	import "./styles.css";
//
//	export default function Hello(props) {
//	    return <World name={props.name} />;
//	}
//
// Parse removes every import statement and records it as a ModuleImport.
// Imports with the "component://" prefix, and relative imports, refer to
// other components and are marked IsBoundaryComponent; relative paths are
// resolved against the importing component (see ResolveRelative). Other
// specifiers are package imports resolved by the host's import table.
//
// A component has at most one export. The export keyword is removed and the
// exported binding is reported; anonymous default exports are bound to
// DefaultExport. A source with no export is a body-style component whose
// statements form the render function.
//
// Import parsing degrades: an unparseable statement is logged and stops
// extraction, leaving the remaining source as written. Export errors fail.
package parser
