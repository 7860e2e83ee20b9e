package api

import "net/http"

// indexPage is the minimal upload form. It posts the CSV and appends the
// streamed progress events to the log area; all real logic lives server-side.
const indexPage = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>pressync</title></head>
<body>
<h1>pressync</h1>
<form id="f">
  <input type="file" name="file" accept=".csv" required>
  <select name="mode">
    <option value="create">create</option>
    <option value="update">update</option>
  </select>
  <input type="text" name="site" placeholder="site (optional)">
  <button type="submit">Run</button>
</form>
<pre id="log"></pre>
<script>
document.getElementById('f').addEventListener('submit', async (e) => {
  e.preventDefault();
  const log = document.getElementById('log');
  log.textContent = '';
  const resp = await fetch('/api/v1/sync', {method: 'POST', body: new FormData(e.target)});
  const reader = resp.body.getReader();
  const dec = new TextDecoder();
  for (;;) {
    const {done, value} = await reader.read();
    if (done) break;
    log.textContent += dec.decode(value);
  }
});
</script>
</body>
</html>
`

// Index serves the upload form.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}
