package handler

import (
	"fmt"
	"net/http"
)

// Manifest serves the PWA manifest.
func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/manifest+json")
	fmt.Fprint(w, `{
  "name": "SmartShuttle",
  "short_name": "SmartShuttle",
  "description": "Real-time shuttle tracking and service alerts",
  "start_url": "/",
  "scope": "/",
  "display": "standalone",
  "orientation": "any",
  "background_color": "#413C96",
  "theme_color": "#413C96",
  "categories": ["navigation", "transportation"],
  "icons": [
    {
      "src": "/static/icons/icon-192.png",
      "sizes": "192x192",
      "type": "image/png",
      "purpose": "any"
    },
    {
      "src": "/static/icons/icon-512.png",
      "sizes": "512x512",
      "type": "image/png",
      "purpose": "any"
    },
    {
      "src": "/static/icons/icon-512.png",
      "sizes": "512x512",
      "type": "image/png",
      "purpose": "maskable"
    }
  ]
}`)
}

// ServiceWorker serves the service worker script. It caches static assets
// only; live transit data always goes to the network.
// Cache-Control: no-cache ensures browsers always check for updates to sw.js.
func (h *Handler) ServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, serviceWorkerScript)
}

const serviceWorkerScript = `// SmartShuttle Service Worker: static assets only
var CACHE_NAME = 'smartshuttle-static-v1';

var STATIC_ASSETS = [
  '/static/icons/icon-192.png',
  '/static/icons/icon-512.png',
  '/offline',
  '/manifest.json'
];

self.addEventListener('install', function (event) {
  event.waitUntil(
    caches.open(CACHE_NAME).then(function (cache) {
      return cache.addAll(STATIC_ASSETS);
    })
  );
  self.skipWaiting();
});

self.addEventListener('activate', function (event) {
  event.waitUntil(
    caches.keys().then(function (names) {
      return Promise.all(
        names.filter(function (n) { return n !== CACHE_NAME; })
          .map(function (n) { return caches.delete(n); })
      );
    })
  );
  self.clients.claim();
});

self.addEventListener('fetch', function (event) {
  var url = new URL(event.request.url);
  if (event.request.method !== 'GET') return;

  // Never cache live data: proxy, geocode, views
  if (url.pathname.startsWith('/api/')) return;

  if (url.pathname.startsWith('/static/') || url.pathname === '/manifest.json') {
    event.respondWith(
      caches.match(event.request).then(function (cached) {
        return cached || fetch(event.request).then(function (response) {
          var clone = response.clone();
          caches.open(CACHE_NAME).then(function (cache) {
            cache.put(event.request, clone);
          });
          return response;
        });
      })
    );
    return;
  }

  if (event.request.headers.get('Accept') &&
      event.request.headers.get('Accept').indexOf('text/html') !== -1) {
    event.respondWith(
      fetch(event.request).catch(function () {
        return caches.match('/offline');
      })
    );
  }
});
`

// Offline serves the offline fallback page.
func (h *Handler) Offline(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Offline — SmartShuttle</title>
<meta name="theme-color" content="#413C96">
<style>
  body {
    background: #413C96;
    color: #f5f5fa;
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    display: flex;
    align-items: center;
    justify-content: center;
    min-height: 100vh;
    margin: 0;
  }
  main { text-align: center; padding: 2rem; }
  h1 { margin-bottom: 1rem; }
  p { color: #ccc9f6; font-size: 1.125rem; }
  button {
    margin-top: 1.5rem;
    padding: 0.75rem 2rem;
    border: none;
    border-radius: 8px;
    background: #6a63f6;
    color: #fff;
    font-size: 1rem;
    cursor: pointer;
  }
</style>
</head>
<body>
<main role="main">
<h1>SmartShuttle</h1>
<h2>You're offline</h2>
<p>Live shuttle positions and arrival times need an internet connection.</p>
<button onclick="location.reload()">Try Again</button>
</main>
</body>
</html>`)
}
