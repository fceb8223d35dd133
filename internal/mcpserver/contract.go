package mcpserver

// FormatContract documents the record formats linkgraph reads and writes.
const FormatContract = `# linkgraph Record Formats

All files are UTF-8, tab-separated, newline-terminated, zstandard-compressed
(` + "`.zst`" + `). Fields never contain tabs or newlines.

## Inputs

| File      | Fields                          |
|-----------|---------------------------------|
| pages     | id, title, (ignored)            |
| redirects | source id, target id            |
| links     | source id, target title         |

A line with the wrong number of fields aborts the run.

## Outputs

- Resolved links: source id, target id. No header.
- Unmatched targets: header line ` + "`source_id\\ttarget_title`" + `, then
  source id, target title.

## Resolution rules

1. A link whose source id is not a page is dropped.
2. The source id is replaced by its redirect target (one hop only).
3. The target title is looked up; the last page with that title wins.
4. Unknown title: the link is written to unmatched targets.
5. Known title equal to the source id: the link is dropped as a self link.
6. Otherwise the target id is replaced by its redirect target (one hop only)
   and the edge is written. Self links that only appear after this hop are
   kept.
`
