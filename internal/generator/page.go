// Package generator writes the Leaflet page and the JSON payload.
package generator

import "html/template"

var pageTemplate = template.Must(template.New("fires").Funcs(template.FuncMap{
	"toJSON": toJSON,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
   <meta charset="UTF-8"/>
   <title>{{ .Title }}</title>
   <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
   <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
   <script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
   <style>
      :root {
         --bg-color: #121212;
         --text-color: #e0e0e0;
         --card-bg: #1e1e1e;
         --card-border: #333;
         --summary-bg: #252525;
         --header-bg: #2d2d45;
         --header-border: #444466;
         --accent: {{ .Style.Popup.Accent }};
         --error-bg: #3d1a1a;
         --error-border: #a52a2a;
      }
      body {
         font-family: Arial, sans-serif;
         max-width: 1200px;
         margin: 0 auto;
         padding: 20px;
         background-color: var(--bg-color);
         color: var(--text-color);
         animation: fadeIn 0.3s ease-in;
      }
      @keyframes fadeIn { from { opacity: 0; } to { opacity: 1; } }
      html { background-color: #121212; }
      #map {
         height: 600px; width: 100%;
         border: 2px solid var(--card-border);
         border-radius: 5px; margin-top: 20px;
         background: var(--bg-color);
      }
      .stats { display: flex; flex-wrap: wrap; gap: 10px; margin: 10px 0; }
      .stat {
         background-color: var(--summary-bg); padding: 8px 12px;
         border-radius: 5px; border: 1px solid var(--card-border);
      }
      .stat strong { color: var(--accent); }
      .countries { display: flex; flex-wrap: wrap; gap: 6px; margin-top: 10px; }
      .country {
         background-color: var(--card-bg); border: 1px solid var(--card-border);
         border-radius: 3px; padding: 3px 8px; font-size: 0.9em;
      }
      .toolbar { display: flex; gap: 10px; align-items: center; margin-top: 10px; }
      .toolbar button {
         padding: 5px 10px; background-color: var(--header-bg); color: var(--text-color);
         border: 1px solid var(--header-border); border-radius: 3px; cursor: pointer;
      }
      .error {
         background-color: var(--error-bg); border: 1px solid var(--error-border);
         padding: 10px; border-radius: 5px; margin-top: 10px;
      }
      .leaflet-popup-content-wrapper, .leaflet-popup-tip {
         background: {{ .Style.Popup.Background }}; color: {{ .Style.Popup.Foreground }};
         border: 1px solid {{ .Style.Popup.Border }};
      }
      .fire-popup h3 { margin: 0 0 4px; color: var(--accent); font-size: 1em; }
      .fire-popup p { margin: 2px 0; }
      .fire-popup a { color: var(--accent); }
      .next-refresh { color: #888; font-size: 0.9em; }
   </style>
</head>
<body>
   <h1 style="text-align: center;">{{ .Title }}</h1>

   <div class="stats">
      <div class="stat">Locations: <strong id="total">{{ .Payload.Stats.Total }}</strong></div>
      <div class="stat">Countries: <strong id="countries">{{ .Payload.Stats.Countries }}</strong></div>
      <div class="stat">Variant: <strong>{{ .VariantName }}</strong></div>
      <div class="stat" id="last-updated">Last updated: <span id="last-updated-time">{{ .Payload.LastUpdated }}</span></div>
   </div>
   {{ if .RefreshSeconds }}<div class="next-refresh">Next refresh in <span class="countdown">{{ .RefreshSeconds }}s</span></div>{{ end }}

   <div id="error" class="error"{{ if not .Payload.Error }} style="display:none;"{{ end }}>
      Failed to load fire locations: <span id="error-text">{{ .Payload.Error }}</span>
   </div>

   <div class="toolbar">
      <button id="mode-toggle" onclick="toggleMode()">Show heatmap</button>
      <span>Mode: <strong id="mode-label">{{ .Mode }}</strong></span>
   </div>

   <div id="map"></div>

   {{ if .Countries }}
   <div class="countries">
      {{ range .Countries }}<div class="country">{{ .Code }}: {{ .Count }}</div>{{ end }}
   </div>
   {{ else }}
   <p>No fire locations to show.</p>
   {{ end }}

   <script>
      const style = {{ toJSON .Style }};
      const boundaries = {{ toJSON .Boundaries }};
      const payloadURL = {{ .PayloadURL }};
      const refreshSeconds = {{ .RefreshSeconds }};
      const interactive = {{ .Interactive }};
      let payload = {{ toJSON .Payload }};
      let mode = {{ .Mode }};
      let map, pointsLayer, heatLayer;

      function escapeHtml(str) {
          return String(str || '').replace(/&/g,'&amp;').replace(/</g,'&lt;').replace(/>/g,'&gt;').replace(/"/g,'&quot;');
      }

      function popupHtml(props) {
          const loc = props.location || {};
          let html = '<div class="fire-popup"><h3>' + escapeHtml(loc.name || 'Unnamed location') + '</h3>';
          if (loc.address) html += '<p>' + escapeHtml(loc.address) + '</p>';
          if (loc.country_code) html += '<p>Country: ' + escapeHtml(loc.country_code) + '</p>';
          if (props.date) html += '<p>Date: ' + escapeHtml(props.date) + '</p>';
          if (props.google_maps_url) html += '<p><a href="' + escapeHtml(props.google_maps_url) + '" target="_blank">View on Google Maps</a></p>';
          return html + '</div>';
      }

      function features() {
          return (payload.locations && payload.locations.features) || [];
      }

      function glyph(latlng) {
          const p = style.Points;
          if (p.Glyph === 'pin') {
              const r = p.Radius, w = r * 2 + 2, h = r * 4;
              const svg = '<svg xmlns="http://www.w3.org/2000/svg" width="' + w + '" height="' + h + '">' +
                  '<path d="M' + (w/2) + ' ' + h + ' L' + (w/2 - r*0.8) + ' ' + (h - r*1.6) + ' L' + (w/2 + r*0.8) + ' ' + (h - r*1.6) + ' Z" fill="' + p.Fill + '" fill-opacity="' + p.FillOpacity + '" stroke="' + p.Stroke + '" stroke-width="' + p.StrokeWidth + '"/>' +
                  '<circle cx="' + (w/2) + '" cy="' + (h - r*2) + '" r="' + r + '" fill="' + p.Fill + '" fill-opacity="' + p.FillOpacity + '" stroke="' + p.Stroke + '" stroke-width="' + p.StrokeWidth + '"/></svg>';
              return L.marker(latlng, {
                  pane: p.Pane,
                  icon: L.divIcon({ className: '', html: svg, iconSize: [w, h], iconAnchor: [w/2, h], popupAnchor: [0, -h] })
              });
          }
          return L.circleMarker(latlng, {
              pane: p.Pane, radius: p.Radius, color: p.Stroke, weight: p.StrokeWidth,
              fillColor: p.Fill, fillOpacity: p.FillOpacity
          });
      }

      function buildPoints() {
          const layer = L.layerGroup();
          features().forEach(f => {
              const c = f.geometry && f.geometry.coordinates;
              if (!c || !isFinite(c[0]) || !isFinite(c[1])) return;
              const marker = glyph([c[1], c[0]]);
              marker.bindPopup(popupHtml(f.properties || {}), { pane: style.Popup.Pane, maxWidth: style.Popup.MaxWidth });
              if (style.Points.Interaction === 'hover') {
                  marker.on('mouseover', () => marker.openPopup());
                  marker.on('mouseout', () => marker.closePopup());
              } else if (style.Points.Interaction === 'none') {
                  marker.off('click');
              }
              layer.addLayer(marker);
          });
          return layer;
      }

      function buildHeat() {
          const h = style.Heatmap;
          const gradient = {};
          (h.Gradient || []).forEach(s => { gradient[s.offset] = s.color; });
          const points = features()
              .map(f => f.geometry && f.geometry.coordinates)
              .filter(c => c && isFinite(c[0]) && isFinite(c[1]))
              .map(c => [c[1], c[0], h.Intensity]);
          return L.heatLayer(points, { radius: h.Radius, blur: h.Blur, max: 1, gradient: gradient });
      }

      function showMode() {
          if (pointsLayer) map.removeLayer(pointsLayer);
          if (heatLayer) map.removeLayer(heatLayer);
          pointsLayer = heatLayer = null;
          if (mode === 'heatmap') {
              heatLayer = buildHeat().addTo(map);
              if (heatLayer._canvas) heatLayer._canvas.style.opacity = style.Heatmap.MaxOpacity;
          } else {
              pointsLayer = buildPoints().addTo(map);
          }
          document.getElementById('mode-label').textContent = mode;
          document.getElementById('mode-toggle').textContent = mode === 'heatmap' ? 'Show points' : 'Show heatmap';
      }

      function toggleMode() {
          mode = mode === 'heatmap' ? 'points' : 'heatmap';
          showMode();
      }

      function updateStats() {
          const s = payload.stats || {};
          document.getElementById('total').textContent = s.total || 0;
          document.getElementById('countries').textContent = s.countries || 0;
          document.getElementById('last-updated-time').textContent = payload.lastUpdated || '';
          const err = document.getElementById('error');
          err.style.display = payload.error ? 'block' : 'none';
          document.getElementById('error-text').textContent = payload.error || '';
      }

      async function fetchUpdatedPayload() {
          try {
              const response = await fetch(payloadURL + '?_=' + Date.now());
              if (!response.ok) throw new Error('Failed to read payload: ' + response.status);
              payload = await response.json();
              console.log('[poll] ' + features().length + ' locations, updated ' + payload.lastUpdated);
              updateStats();
              showMode();
          } catch (error) {
              console.error('[poll] error reading payload:', error);
          }
      }

      function initMap() {
          map = L.map('map', {
              center: {{ toJSON .Center }},
              zoom: {{ .Zoom }},
              minZoom: {{ .MinZoom }},
              maxZoom: {{ .MaxZoom }},
              dragging: interactive,
              scrollWheelZoom: interactive,
              doubleClickZoom: interactive,
              boxZoom: interactive,
              keyboard: interactive,
              touchZoom: interactive,
              zoomControl: interactive,
              worldCopyJump: true
          });
          Object.keys(style.Panes || {}).forEach(name => {
              const pane = map.createPane(name);
              pane.style.zIndex = style.Panes[name];
          });
          if (boundaries) {
              const b = style.Boundary;
              L.geoJSON(boundaries, {
                  pane: b.Pane, interactive: false,
                  style: { color: b.Stroke, weight: b.StrokeWidth, fillColor: b.Fill, fillOpacity: b.FillOpacity }
              }).addTo(map);
          }
          showMode();
      }

      window.onload = function() {
          initMap();
          if (refreshSeconds > 0 && payloadURL) {
              let remaining = refreshSeconds;
              const countdown = document.querySelectorAll('.countdown');
              setInterval(function() {
                  remaining--;
                  if (remaining <= 0) {
                      countdown.forEach(el => el.textContent = 'Updating...');
                      remaining = refreshSeconds;
                      fetchUpdatedPayload();
                  } else {
                      countdown.forEach(el => el.textContent = remaining + 's');
                  }
              }, 1000);
          }
      };
   </script>
</body>
</html>
`))
