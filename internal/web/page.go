package web

import "os"

var pid = os.Getpid

// indexHTML is a minimal front-end: a search box, the ranked results and
// the launch footer. Escape hides the window; Enter runs the selection.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>thoth</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --bg-primary: #e5e7eb;
            --bg-secondary: white;
            --text-primary: #333;
            --text-muted: #7f8c8d;
            --border-color: #d1d5db;
            --accent-color: #3498db;
        }

        [data-theme="dark"] {
            --bg-primary: #1a1a1a;
            --bg-secondary: #2d2d2d;
            --text-primary: #e0e0e0;
            --text-muted: #a0a0a0;
            --border-color: #404040;
            --accent-color: #5dade2;
        }

        body {
            font-family: ui-monospace, SFMono-Regular, Menlo, monospace;
            background: var(--bg-primary);
            color: var(--text-primary);
            border-radius: 12px;
            height: 100vh;
            display: flex;
            flex-direction: column;
        }

        #search-bar {
            margin: 12px;
            padding: 10px 14px;
            font: inherit;
            font-size: 18px;
            border: 1px solid var(--border-color);
            border-radius: 8px;
            background: var(--bg-secondary);
            color: var(--text-primary);
            outline: none;
        }

        #results {
            list-style: none;
            flex: 1;
            overflow-y: auto;
            padding: 0 12px;
        }

        #results li {
            display: flex;
            align-items: center;
            gap: 10px;
            padding: 8px 10px;
            border-radius: 6px;
            cursor: pointer;
        }

        #results li img {
            width: 24px;
            height: 24px;
        }

        #results li.selected {
            background: var(--accent-color);
            color: white;
        }

        footer {
            padding: 8px 14px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
            font-size: 13px;
        }
    </style>
</head>
<body>
    <input id="search-bar" type="text" autofocus autocomplete="off" spellcheck="false">
    <ul id="results"></ul>
    <footer id="footer">thoth.app</footer>
    <script>
        const bar = document.getElementById('search-bar');
        const list = document.getElementById('results');
        const footer = document.getElementById('footer');
        let items = [];
        let selected = 0;

        if (window.matchMedia('(prefers-color-scheme: dark)').matches) {
            document.documentElement.setAttribute('data-theme', 'dark');
        }

        function render() {
            list.innerHTML = '';
            items.forEach((item, i) => {
                const li = document.createElement('li');
                if (i === selected) li.className = 'selected';
                if (item.icon && item.icon.startsWith('/')) {
                    const img = document.createElement('img');
                    img.src = 'file://' + item.icon;
                    li.appendChild(img);
                }
                li.appendChild(document.createTextNode(item.name));
                li.onclick = () => run(item.exec);
                list.appendChild(li);
            });
        }

        async function search(q) {
            const res = await fetch('/api/search', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({search_input: q}),
            });
            items = res.ok ? await res.json() : [];
            selected = 0;
            render();
        }

        async function run(path) {
            const res = await fetch('/api/run', {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({path: path}),
            });
            const out = res.ok ? await res.json() : {ok: false};
            footer.textContent = out.ok ? 'thoth.app' : 'Error running command';
            bar.value = '';
            items = [];
            render();
        }

        bar.addEventListener('input', () => search(bar.value));

        document.addEventListener('keydown', (event) => {
            switch (event.key) {
            case 'Escape':
                fetch('/api/window/hide', {method: 'POST', headers: {'Content-Type': 'application/json'}});
                break;
            case 'ArrowDown':
                selected = Math.min(selected + 1, items.length - 1);
                render();
                event.preventDefault();
                break;
            case 'ArrowUp':
                selected = Math.max(selected - 1, 0);
                render();
                event.preventDefault();
                break;
            case 'Enter':
                if (items[selected]) run(items[selected].exec);
                break;
            }
        });

        const events = new WebSocket('ws://' + location.host + '/api/window/events');
        events.onmessage = (msg) => {
            const state = JSON.parse(msg.data);
            if (state.visible && state.focused) bar.focus();
        };
    </script>
</body>
</html>`
