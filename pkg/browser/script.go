package browser

import (
	"strconv"
	"strings"
)

const (
	mutationBinding = "__autorecordMutation"
	messageBinding  = "__autorecordMessage"
	keyFunction     = "__autorecordKey"
	nodeFunction    = "__autorecordNode"
	documentID      = "__autorecordDocument"
	tokenMarker     = "__AUTORECORD_TOKEN__"
)

// initScriptTemplate runs in every frame before page scripts. Mutation bursts
// are folded into one binding call per 50ms.
//
// Elements never leave the page as handles. Nodes are addressed by the keys
// __autorecordKey hands out, and __autorecordNode resolves a key back to its
// element while the element is alive.
//
// The bindings are captured before any page script runs. Only trusted message
// events are forwarded, and every forwarded message carries the install token,
// so a page script calling the global binding cannot pass for a frame message.
const initScriptTemplate = `(() => {
  if (window.__autorecordInstalled) return;
  Object.defineProperty(window, '__autorecordInstalled', { value: true });

  const token = ` + tokenMarker + `;
  const noop = () => {};
  const notifyMutation = typeof window.` + mutationBinding + ` === 'function' ? window.` + mutationBinding + ` : noop;
  const forwardMessage = typeof window.` + messageBinding + ` === 'function' ? window.` + messageBinding + ` : noop;

  const keys = new WeakMap();
  const refs = new Map();
  const gone = new FinalizationRegistry((k) => refs.delete(k));
  let next = 0;
  Object.defineProperty(window, '` + keyFunction + `', {
    value: (el) => {
      if (!el) return null;
      let k = keys.get(el);
      if (!k) {
        k = 'n' + (++next);
        keys.set(el, k);
        refs.set(k, new WeakRef(el));
        gone.register(el, k);
      }
      return k;
    },
  });
  Object.defineProperty(window, '` + nodeFunction + `', {
    value: (k) => {
      const ref = refs.get(k);
      const el = ref ? ref.deref() : null;
      return el && el.isConnected ? el : null;
    },
  });
  Object.defineProperty(window, '` + documentID + `', {
    value: Date.now().toString(36) + '-' + Math.random().toString(36).slice(2),
  });

  let queued = false;
  const flush = () => {
    queued = false;
    try { notifyMutation(); } catch (e) {}
  };
  new MutationObserver(() => {
    if (queued) return;
    queued = true;
    setTimeout(flush, 50);
  }).observe(document, { subtree: true, childList: true, attributes: true, characterData: true });

  window.addEventListener('message', (e) => {
    if (!e.isTrusted) return;
    const d = e.data;
    if (!d || typeof d.type !== 'string') return;
    try { forwardMessage({ origin: e.origin, type: d.type, token }); } catch (err) {}
  });
})();`

// initScript renders the script for one install. token must match the token
// the message binding checks.
func initScript(token string) string {
	return strings.Replace(initScriptTemplate, tokenMarker, strconv.Quote(token), 1)
}
