package validation

// PromptVersion は以下の判定プロンプトの版です。文面を変えた場合は更新します。
const PromptVersion = "v1"

// CompositeCheckPrompt は生成結果が 1 枚の写真ではなく、並べた合成画像のままかどうかを判定させる指示文です。
const CompositeCheckPrompt = `You are checking the output of a photo generation model.
Look at the image and decide whether it is a side-by-side composite, collage, split-screen or grid
made of two or more separate photos, rather than a single unified photograph of one scene.

Respond ONLY with JSON in this exact shape:
{"isComposite": true or false, "reasoning": "one short sentence"}`

// IdentityCheckPrompt は 2 枚の写真が同一人物かどうかと、その確信度を判定させる指示文です。
// 画像 1 が本人の参照写真、画像 2 が生成結果です。
const IdentityCheckPrompt = `You are a careful face-verification assistant.
Image 1 is a reference photo of a person. Image 2 is a generated photo.
Compare facial structure, eye shape, nose, mouth, jawline, skin tone and hair.
Ignore differences in pose, outfit, lighting, background and camera angle.

Respond ONLY with JSON in this exact shape:
{"isSamePerson": true or false, "confidence": number between 0 and 1, "reasoning": "one short sentence"}`
