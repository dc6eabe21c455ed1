package server

// indexHTML is the minimal chat page served at /.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Free AI Agent</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2rem auto; padding: 0 1rem; }
#log { border: 1px solid #ccc; border-radius: 6px; padding: 1rem; min-height: 300px; white-space: pre-wrap; }
.user { color: #0b5394; margin: .5rem 0; }
.assistant { color: #222; margin: .5rem 0; }
form { display: flex; gap: .5rem; margin-top: 1rem; }
input[type=text] { flex: 1; padding: .5rem; }
</style>
</head>
<body>
<h1>🤖 Free AI Agent</h1>
<div id="log"></div>
<form id="f">
<input type="text" id="msg" placeholder="Type a message..." autocomplete="off">
<button type="submit">Send</button>
<button type="button" id="clear">Clear</button>
</form>
<script>
let sessionId = "";
const log = document.getElementById("log");
function add(cls, text) {
  const div = document.createElement("div");
  div.className = cls;
  div.textContent = (cls === "user" ? "You: " : "Assistant: ") + text;
  log.appendChild(div);
  log.scrollTop = log.scrollHeight;
}
document.getElementById("f").addEventListener("submit", async (e) => {
  e.preventDefault();
  const input = document.getElementById("msg");
  const message = input.value.trim();
  if (!message) return;
  input.value = "";
  add("user", message);
  const resp = await fetch("/api/chat", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({message: message, session_id: sessionId}),
  });
  const data = await resp.json();
  if (data.success) {
    sessionId = data.session_id;
    add("assistant", data.response);
  } else {
    add("assistant", "Error: " + data.error);
  }
});
document.getElementById("clear").addEventListener("click", async () => {
  await fetch("/api/clear", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({session_id: sessionId}),
  });
  log.textContent = "";
});
</script>
</body>
</html>
`
