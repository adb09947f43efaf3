// Package tokens loads the two placeholder sources used by the HTML transforms:
// the nested design/content token list ({{tk.*}}) and the allow-listed site identity
// fields ({{st.*}}). Both are flattened into immutable dotted-key stores once per build.
package tokens
